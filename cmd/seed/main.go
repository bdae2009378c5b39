// Command seed creates development users and listings and prints an access
// token for each user. It is idempotent on email.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"marketplace/internal/auth"
	"marketplace/internal/config"
	"marketplace/internal/domain/model"
	"marketplace/internal/infra/db"
	infraRepo "marketplace/internal/infra/repository"
	repo "marketplace/internal/repository"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// 開発用トークンは長め
const devTokenTTL = 24 * time.Hour

const devPassword = "password123"

type seedUser struct {
	email    string
	name     string
	role     model.Role
	userType model.UserType
	verified bool
	profile  model.ProfileData
}

var users = []seedUser{
	{"admin@example.com", "Admin", model.RoleAdmin, model.UserTypeIndividual, true, &model.IndividualProfile{FullName: "Admin"}},
	{"buyer@example.com", "Asha Buyer", model.RoleUser, model.UserTypeIndividual, false, &model.IndividualProfile{FullName: "Asha Buyer", City: "Pune"}},
	{"seller@example.com", "Acme Supplies", model.RoleUser, model.UserTypeCompany, true, &model.CompanyProfile{CompanyName: "Acme Supplies", Industry: "retail"}},
	{"ngo@example.com", "Green Earth", model.RoleUser, model.UserTypeNGO, true, &model.NGOProfile{OrganizationName: "Green Earth", FocusAreas: []string{"environment"}}},
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(gormDB); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	itemRepo := infraRepo.NewMarketplaceItemGormRepository(gormDB)
	tokens := auth.NewTokens(cfg.JWTSecret, devTokenTTL)

	hash, err := auth.HashPassword(devPassword)
	if err != nil {
		log.Fatal(err)
	}

	now := time.Now()
	created := map[string]*model.User{}
	for _, su := range users {
		u, err := userRepo.FindByEmail(ctx, su.email)
		if err != nil {
			log.Fatal(err)
		}
		if u == nil {
			raw, err := model.EncodeProfile(su.userType, su.profile)
			if err != nil {
				log.Fatal(err)
			}
			u = &model.User{
				Email:        su.email,
				PasswordHash: hash,
				Name:         su.name,
				Role:         su.role,
				UserType:     su.userType,
				ProfileData:  raw,
				IsVerified:   su.verified,
				IsActive:     true,
			}
			if err := userRepo.Create(ctx, u); err != nil {
				log.Fatal(err)
			}
			log.Printf("created %s (id=%d)", u.Email, u.ID)
		}
		created[su.email] = u

		token, exp, err := tokens.Issue(u, now)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%-20s id=%-4d role=%-5s type=%-10s expires=%s\n  %s\n", u.Email, u.ID, u.Role, u.UserType, exp.Format(time.RFC3339), token)
	}

	seller := created["seller@example.com"]
	items := []model.MarketplaceItem{
		{Title: "Steel water bottle", Description: "1L insulated", Category: "kitchen", Price: decimal.RequireFromString("500.00"), Stock: 40},
		{Title: "Cotton tote bag", Description: "Reusable shopping bag", Category: "bags", Price: decimal.RequireFromString("250.00"), Stock: 100},
	}
	existing, _, err := itemRepo.ListPublic(ctx, repo.ItemListQuery{Page: 1, Limit: 1, SellerID: &seller.ID})
	if err != nil {
		log.Fatal(err)
	}
	if len(existing) > 0 {
		log.Printf("seller already has %d listings, skipping items", len(existing))
		return
	}
	for _, it := range items {
		it.SellerID = seller.ID
		it.IsActive = true
		out, err := itemRepo.Create(ctx, it)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("created item %q (id=%d)", out.Title, out.ID)
	}
}
