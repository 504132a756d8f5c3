// app/bootstrap.go
package app

import (
	"context"

	"material_lending/config"
	"material_lending/models"

	"go.uber.org/zap"
)

type ProfessorBootstrapper interface {
	CountUsersByRole(ctx context.Context, role models.Role) (int64, error)
	FindOrCreateUser(ctx context.Context, name, email string, role models.Role) (*models.User, error)
	SetUserRole(ctx context.Context, userID uint, role models.Role) error
}

// BootstrapProfessor 在还没有任何教授时，把 BOOTSTRAP_PROFESSOR_EMAIL 设为教授
func BootstrapProfessor(ctx context.Context, cfg *config.Config, repo ProfessorBootstrapper, log *zap.Logger) error {
	if cfg.BootstrapEmail == "" {
		return nil
	}
	n, err := repo.CountUsersByRole(ctx, models.RoleProfessor)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil // 已经有教授，跳过
	}

	u, err := repo.FindOrCreateUser(ctx, cfg.BootstrapName, cfg.BootstrapEmail, models.RoleProfessor)
	if err != nil {
		return err
	}
	if u.Role != models.RoleProfessor {
		if err := repo.SetUserRole(ctx, u.ID, models.RoleProfessor); err != nil {
			return err
		}
	}
	log.Info("[BOOTSTRAP] no professor found, promoted bootstrap account",
		zap.Uint("user_id", u.ID), zap.String("email", u.Email))
	return nil
}
