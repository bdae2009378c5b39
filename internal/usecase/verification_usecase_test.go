package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"marketplace/internal/domain/event"
	"marketplace/internal/domain/model"
	"marketplace/internal/usecase"
	"marketplace/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newVerificationUsecase(r *TxReposMock, pub event.Publisher) *usecase.VerificationUsecase {
	return usecase.NewVerificationUsecase(newTx(r), validator.New(), fixedClock{testNow}, &seqIDs{}, pub)
}

func companyApplicant() *model.User {
	return &model.User{ID: 20, Name: "Acme", UserType: model.UserTypeCompany, IsActive: true}
}

func companyVerification(status model.VerificationStatus) *model.CompanyVerification {
	return &model.CompanyVerification{ID: 5, UserID: 20, RegistrationNumber: "U12345", Review: model.VerificationReview{Status: status}}
}

func TestVerification_ReviewApproveSetsVerified(t *testing.T) {
	r := newTxRepos()
	pub := &publisherSpy{}
	uc := newVerificationUsecase(r, pub)

	r.users.On("FindByID", mock.Anything, int64(20)).Return(companyApplicant(), nil)
	r.verifications.On("FindByUserID", mock.Anything, model.UserTypeCompany, int64(20)).Return(companyVerification(model.VerificationPending), nil).Once()
	r.verifications.On("Review", mock.Anything, model.UserTypeCompany, int64(20), model.VerificationApproved, int64(1), "docs ok", testNow).Return(nil).Once()
	r.users.On("SetVerified", mock.Anything, int64(20), true).Return(nil).Once()
	r.audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionReviewVerification && l.ResourceType == model.AuditResourceUser &&
			l.ResourceID == 20 && l.ActorUserID != nil && *l.ActorUserID == 1
	})).Return(nil).Once()
	r.verifications.On("FindByUserID", mock.Anything, model.UserTypeCompany, int64(20)).Return(companyVerification(model.VerificationApproved), nil).Once()

	v, err := uc.Review(context.Background(), adminActor(), 20, usecase.ReviewVerificationInput{Action: "approve", Comments: " docs ok "})
	require.NoError(t, err)
	assert.Equal(t, model.VerificationApproved, v.ReviewState().Status)

	r.users.AssertExpectations(t)
	r.verifications.AssertExpectations(t)
	r.audit.AssertExpectations(t)
	assert.Equal(t, []event.Type{event.VerificationReviewed}, pub.types())
	assert.Equal(t, []int64{20}, pub.events[0].Recipients)
}

func TestVerification_ReviewRejectClearsVerified(t *testing.T) {
	r := newTxRepos()
	uc := newVerificationUsecase(r, event.NopPublisher{})

	r.users.On("FindByID", mock.Anything, int64(20)).Return(companyApplicant(), nil)
	r.verifications.On("FindByUserID", mock.Anything, model.UserTypeCompany, int64(20)).Return(companyVerification(model.VerificationPending), nil).Once()
	r.verifications.On("Review", mock.Anything, model.UserTypeCompany, int64(20), model.VerificationRejected, int64(1), "", testNow).Return(nil).Once()
	r.users.On("SetVerified", mock.Anything, int64(20), false).Return(nil).Once()
	r.audit.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	r.verifications.On("FindByUserID", mock.Anything, model.UserTypeCompany, int64(20)).Return(companyVerification(model.VerificationRejected), nil).Once()

	_, err := uc.Review(context.Background(), adminActor(), 20, usecase.ReviewVerificationInput{Action: "reject"})
	require.NoError(t, err)
	r.users.AssertExpectations(t)
}

func TestVerification_ReviewOnlyPending(t *testing.T) {
	for _, status := range []model.VerificationStatus{model.VerificationApproved, model.VerificationRejected} {
		t.Run(string(status), func(t *testing.T) {
			r := newTxRepos()
			pub := &publisherSpy{}
			uc := newVerificationUsecase(r, pub)

			r.users.On("FindByID", mock.Anything, int64(20)).Return(companyApplicant(), nil)
			r.verifications.On("FindByUserID", mock.Anything, model.UserTypeCompany, int64(20)).Return(companyVerification(status), nil)

			_, err := uc.Review(context.Background(), adminActor(), 20, usecase.ReviewVerificationInput{Action: "approve"})
			assertStatus(t, err, http.StatusConflict)
			assertErrContains(t, err, "already reviewed")
			r.users.AssertNotCalled(t, "SetVerified", mock.Anything, mock.Anything, mock.Anything)
			r.audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			assert.Empty(t, pub.events)
		})
	}
}

func TestVerification_ReviewRejectedInput(t *testing.T) {
	tests := []struct {
		name       string
		actor      model.Actor
		userID     int64
		action     string
		wantStatus int
	}{
		{"not admin", sellerActor(), 20, "approve", http.StatusForbidden},
		{"bad id", adminActor(), 0, "approve", http.StatusBadRequest},
		{"bad action", adminActor(), 20, "maybe", http.StatusBadRequest},
		{"anonymous", model.Actor{}, 20, "approve", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := newVerificationUsecase(newTxRepos(), event.NopPublisher{})
			_, err := uc.Review(context.Background(), tt.actor, tt.userID, usecase.ReviewVerificationInput{Action: tt.action})
			assertStatus(t, err, tt.wantStatus)
		})
	}
}

func TestVerification_ReviewUnknownUser(t *testing.T) {
	r := newTxRepos()
	uc := newVerificationUsecase(r, event.NopPublisher{})
	r.users.On("FindByID", mock.Anything, int64(99)).Return(nil, nil)

	_, err := uc.Review(context.Background(), adminActor(), 99, usecase.ReviewVerificationInput{Action: "approve"})
	assertStatus(t, err, http.StatusNotFound)
}
