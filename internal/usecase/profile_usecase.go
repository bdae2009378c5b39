package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"marketplace/internal/domain/model"
	repo "marketplace/internal/repository"
)

type ProfileUsecase struct {
	users repo.UserRepository
	v     Validator
}

func NewProfileUsecase(users repo.UserRepository, v Validator) *ProfileUsecase {
	return &ProfileUsecase{users: users, v: v}
}

type ProfileOutput struct {
	User    model.User        `json:"user"`
	Profile model.ProfileData `json:"profile"`
}

type UpdateProfileInput struct {
	Name string `json:"name" validate:"required,max=255"`
	//user_typeに合った形のJSON
	Profile json.RawMessage `json:"profile"`
}

func (u *ProfileUsecase) Get(ctx context.Context, userID int64) (ProfileOutput, error) {
	user, err := u.findUser(ctx, userID)
	if err != nil {
		return ProfileOutput{}, err
	}

	p, err := model.DecodeProfile(user.UserType, user.ProfileData)
	if err != nil {
		//壊れたデータは空として返す
		p, _ = model.NewProfileFor(user.UserType)
	}
	return ProfileOutput{User: *user, Profile: p}, nil
}

func (u *ProfileUsecase) Update(ctx context.Context, userID int64, in UpdateProfileInput) (ProfileOutput, error) {
	user, err := u.findUser(ctx, userID)
	if err != nil {
		return ProfileOutput{}, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return ProfileOutput{}, NewHTTPError(http.StatusBadRequest, "invalid name")
	}

	p, err := model.DecodeProfile(user.UserType, in.Profile)
	if err != nil {
		return ProfileOutput{}, wrapHTTPError(http.StatusBadRequest, "invalid profile", err)
	}
	if err := u.v.Validate(p); err != nil {
		return ProfileOutput{}, wrapHTTPError(http.StatusBadRequest, "invalid profile", err)
	}

	raw, err := model.EncodeProfile(user.UserType, p)
	if err != nil {
		return ProfileOutput{}, wrapHTTPError(http.StatusBadRequest, "invalid profile", err)
	}
	if err := u.users.UpdateProfile(ctx, userID, name, raw); err != nil {
		return ProfileOutput{}, repoError(err)
	}

	user.Name = name
	user.ProfileData = raw
	return ProfileOutput{User: *user, Profile: p}, nil
}

func (u *ProfileUsecase) findUser(ctx context.Context, userID int64) (*model.User, error) {
	if userID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, dbError(err)
	}
	if user == nil {
		return nil, NewHTTPError(http.StatusNotFound, "not found")
	}
	return user, nil
}
