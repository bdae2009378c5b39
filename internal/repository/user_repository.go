package repository

import (
	"context"

	"gorm.io/datatypes"

	"marketplace/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。無ければ(nil, nil)
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	//プロフィールJSONの更新
	UpdateProfile(ctx context.Context, userID int64, name string, profile datatypes.JSON) error
	//認証バッジの付け外し
	SetVerified(ctx context.Context, userID int64, verified bool) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
