package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
	"marketplace/internal/usecase"
	"marketplace/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ngoActor(verified bool) model.Actor {
	return model.Actor{UserID: 40, Role: model.RoleUser, UserType: model.UserTypeNGO, IsVerified: verified}
}

func TestServiceOffer_CreateStartsPendingWithTimer(t *testing.T) {
	offers := &ServiceOfferRepoMock{}
	uc := usecase.NewServiceOfferUsecase(offers, fixedClock{testNow}, validator.New())

	offers.On("Create", mock.Anything, mock.MatchedBy(func(o *model.ServiceOffer) bool {
		return o.NGOID == 40 && o.AdminStatus == model.AdminStatusPending && o.CreatedAt.Equal(testNow)
	})).Return(nil).Once()

	v, err := uc.Create(context.Background(), ngoActor(true), usecase.CreateServiceOfferInput{
		Title:       "  Field coordinator ",
		Description: "Coordinate volunteers",
		WageInfo:    model.WageInfo{Kind: model.WageStipend, Amount: dec("3000"), Currency: "INR"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Field coordinator", v.Title)
	require.NotNil(t, v.ReviewTimer)
	assert.Equal(t, model.TimerNormal, v.ReviewTimer.State)
	assert.Equal(t, testNow.Add(model.ReviewSLA), v.ReviewTimer.Deadline)
	offers.AssertExpectations(t)
}

func TestServiceOffer_CreateRejected(t *testing.T) {
	valid := usecase.CreateServiceOfferInput{
		Title:       "Tutor",
		Description: "Weekend tutoring",
		WageInfo:    model.WageInfo{Kind: model.WageUnpaid},
	}
	unpaidWithAmount := valid
	unpaidWithAmount.WageInfo = model.WageInfo{Kind: model.WageUnpaid, Amount: dec("10")}
	hourlyZero := valid
	hourlyZero.WageInfo = model.WageInfo{Kind: model.WageHourly}

	tests := []struct {
		name       string
		actor      model.Actor
		in         usecase.CreateServiceOfferInput
		wantStatus int
		wantErr    string
	}{
		{"not ngo", buyerActor(), valid, http.StatusForbidden, "only NGOs"},
		{"unverified ngo", ngoActor(false), valid, http.StatusForbidden, "verification required"},
		{"missing title", ngoActor(true), usecase.CreateServiceOfferInput{Description: "x", WageInfo: valid.WageInfo}, http.StatusBadRequest, "invalid input"},
		{"unpaid with amount", ngoActor(true), unpaidWithAmount, http.StatusBadRequest, "wage_amount"},
		{"hourly without amount", ngoActor(true), hourlyZero, http.StatusBadRequest, "wage_amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offers := &ServiceOfferRepoMock{}
			uc := usecase.NewServiceOfferUsecase(offers, fixedClock{testNow}, validator.New())

			_, err := uc.Create(context.Background(), tt.actor, tt.in)
			assertErrContains(t, err, tt.wantErr)
			assertStatus(t, err, tt.wantStatus)
			offers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestServiceOffer_UnverifiedCarriesFlag(t *testing.T) {
	uc := usecase.NewServiceOfferUsecase(&ServiceOfferRepoMock{}, fixedClock{testNow}, validator.New())

	_, err := uc.Create(context.Background(), ngoActor(false), usecase.CreateServiceOfferInput{Title: "t", Description: "d"})
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.True(t, he.RequiresVerification)
}

func TestServiceRequest_CreateAndClose(t *testing.T) {
	requests := &ServiceRequestRepoMock{}
	uc := usecase.NewServiceRequestUsecase(requests, fixedClock{testNow})

	starts := testNow.Add(72 * time.Hour)
	requests.On("Create", mock.Anything, mock.AnythingOfType("*model.ServiceRequest")).Return(nil).Once()

	sr, err := uc.Create(context.Background(), ngoActor(true), usecase.CreateServiceRequestInput{
		Title:            "Flood relief packing",
		Description:      "Pack kits",
		VolunteersNeeded: 12,
		Skills:           []string{" logistics ", ""},
		StartsAt:         &starts,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ServiceRequestOpen, sr.Status)
	assert.Equal(t, []string{"logistics"}, sr.Skills)

	sr.ID = 8
	requests.On("FindByID", mock.Anything, int64(8)).Return(sr, nil).Once()
	requests.On("UpdateStatus", mock.Anything, int64(8), model.ServiceRequestClosed).Return(nil).Once()

	closed, err := uc.Close(context.Background(), ngoActor(true), 8)
	require.NoError(t, err)
	assert.Equal(t, model.ServiceRequestClosed, closed.Status)
	requests.AssertExpectations(t)
}

func TestServiceRequest_Errors(t *testing.T) {
	t.Run("start in the past", func(t *testing.T) {
		uc := usecase.NewServiceRequestUsecase(&ServiceRequestRepoMock{}, fixedClock{testNow})
		past := testNow.Add(-time.Hour)
		_, err := uc.Create(context.Background(), ngoActor(true), usecase.CreateServiceRequestInput{
			Title: "t", Description: "d", VolunteersNeeded: 1, StartsAt: &past,
		})
		assertErrContains(t, err, "starts_at must be in the future")
	})

	t.Run("close by other ngo", func(t *testing.T) {
		requests := &ServiceRequestRepoMock{}
		uc := usecase.NewServiceRequestUsecase(requests, fixedClock{testNow})
		requests.On("FindByID", mock.Anything, int64(8)).Return(model.ServiceRequest{ID: 8, NGOID: 99, Status: model.ServiceRequestOpen}, nil)

		_, err := uc.Close(context.Background(), ngoActor(true), 8)
		assertStatus(t, err, http.StatusForbidden)
		requests.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("close twice", func(t *testing.T) {
		requests := &ServiceRequestRepoMock{}
		uc := usecase.NewServiceRequestUsecase(requests, fixedClock{testNow})
		requests.On("FindByID", mock.Anything, int64(8)).Return(model.ServiceRequest{ID: 8, NGOID: 40, Status: model.ServiceRequestClosed}, nil)

		_, err := uc.Close(context.Background(), ngoActor(true), 8)
		assertStatus(t, err, http.StatusConflict)
	})

	t.Run("missing", func(t *testing.T) {
		requests := &ServiceRequestRepoMock{}
		uc := usecase.NewServiceRequestUsecase(requests, fixedClock{testNow})
		requests.On("FindByID", mock.Anything, int64(8)).Return(model.ServiceRequest{}, repo.ErrNotFound)

		_, err := uc.Get(context.Background(), 8)
		assertStatus(t, err, http.StatusNotFound)
	})
}
