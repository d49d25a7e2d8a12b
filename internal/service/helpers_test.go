package service

import "KeeperMigrate/internal/middleware"

func strp(s string) *string { return &s }

func parseAccess(token string) (int64, error) {
	return middleware.ParseToken(token, middleware.TokenAccess, "secret")
}
