// seed.go populates a development database with the standard fixture:
// three organizations, seven instances, fourteen users, and the access grants
// that the end-to-end tests and local portals expect.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/large-event/teamd-backend/internal/db/models"
	"github.com/large-event/teamd-backend/internal/db/repositories"
)

func strptr(s string) *string { return &s }

// Seed inserts the development fixture. It is idempotent for users (existing
// emails are reused) but assumes organizations and instances have not been
// seeded before.
func Seed(ctx context.Context, database *sql.DB) error {
	userRepo := repositories.NewUserRepository(database)
	orgRepo := repositories.NewOrganizationRepository(database)
	instRepo := repositories.NewInstanceRepository(sqlx.NewDb(database, "postgres"))

	// Organizations
	cfes := &models.Organization{Name: "Canadian Federation of Engineering Students", Acronym: strptr("CFES")}
	cale := &models.Organization{Name: "Conference on Advocacy and Leadership in Engineering", Acronym: strptr("CALE")}
	mes := &models.Organization{Name: "McMaster Engineering Society", Acronym: strptr("MES")}
	for _, org := range []*models.Organization{cfes, cale, mes} {
		if err := orgRepo.CreateOrganization(ctx, org); err != nil {
			return fmt.Errorf("failed to create organization %s: %w", org.Name, err)
		}
	}
	slog.Info("seeded organizations", "count", 3)

	// Instances
	mesDashboard := &models.Instance{Name: "MES Dashboard", OwnerOrganizationID: mes.ID}
	fireball := &models.Instance{Name: "Fireball", OwnerOrganizationID: mes.ID}
	toga := &models.Instance{Name: "Toga", OwnerOrganizationID: mes.ID}
	grad := &models.Instance{Name: "Grad", OwnerOrganizationID: mes.ID}
	graffiti := &models.Instance{Name: "Graffiti", OwnerOrganizationID: mes.ID}
	cale2026 := &models.Instance{Name: "CALE 2026", OwnerOrganizationID: cale.ID}
	natsurvey := &models.Instance{Name: "National Survey", OwnerOrganizationID: cfes.ID}

	allInstances := []*models.Instance{mesDashboard, fireball, toga, grad, graffiti, cale2026, natsurvey}
	for _, inst := range allInstances {
		if err := instRepo.CreateInstance(ctx, inst); err != nil {
			return fmt.Errorf("failed to create instance %s: %w", inst.Name, err)
		}
	}
	slog.Info("seeded instances", "count", len(allInstances))

	// Users; reuse rows that already exist so reseeding a dev database works.
	createOrGetUser := func(email, name string, isSystemAdmin bool) (*models.User, error) {
		existing, err := userRepo.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			slog.Info("user already exists, reusing", "email", email)
			return existing, nil
		}
		user := &models.User{Email: email, Name: name, IsSystemAdmin: isSystemAdmin}
		if err := userRepo.CreateUser(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}

	type seedUser struct {
		email   string
		name    string
		isAdmin bool
	}
	seedUsers := []seedUser{
		{"admin@system.com", "System Administrator", true},
		{"admin@mes.dev", "MES Admin", false},
		{"admin@cfes.dev", "CFES Admin", false},
		{"admin@cale.dev", "CALE Admin", false},
		{"admin@fireball.dev", "Fireball Admin", false},
		{"admin@toga.dev", "Toga Admin", false},
		{"admin@grad.dev", "Grad Admin", false},
		{"admin@graffiti.dev", "Graffiti Admin", false},
		{"admin@natsurvey.dev", "NatSurvey Admin", false},
		{"admin@cale2026.dev", "CALE 2026 Admin", false},
		{"user@mes.dev", "MES User", false},
		{"user@cfes.dev", "CFES User", false},
		{"user@cale.dev", "CALE User", false},
		{"viewer@large-event.com", "Event Viewer", false},
	}

	users := make(map[string]*models.User, len(seedUsers))
	for _, su := range seedUsers {
		user, err := createOrGetUser(su.email, su.name, su.isAdmin)
		if err != nil {
			return fmt.Errorf("failed to create user %s: %w", su.email, err)
		}
		users[su.email] = user
	}
	slog.Info("seeded users", "count", len(users))

	// Organization memberships (eligibility pool, not access)
	type membership struct {
		email   string
		org     *models.Organization
		isAdmin bool
	}
	memberships := []membership{
		{"admin@mes.dev", mes, true},
		{"admin@cfes.dev", cfes, true},
		{"admin@cale.dev", cale, true},
		{"user@mes.dev", mes, false},
		{"user@cfes.dev", cfes, false},
		{"user@cale.dev", cale, false},
		{"admin@fireball.dev", mes, false},
		{"admin@toga.dev", mes, false},
		{"admin@grad.dev", mes, false},
		{"admin@graffiti.dev", mes, false},
		{"admin@natsurvey.dev", cfes, false},
		{"admin@cale2026.dev", cale, false},
	}
	for _, m := range memberships {
		if err := orgRepo.AddMember(ctx, users[m.email].ID, m.org.ID, m.isAdmin); err != nil {
			return fmt.Errorf("failed to add %s to %s: %w", m.email, m.org.Name, err)
		}
	}
	slog.Info("seeded memberships", "count", len(memberships))

	// Access grants. The system admin gets 'both' on everything; org admins get
	// 'both' on their org's instances; event admins get 'web_admin' on their
	// event; regular users get 'web_user' on their org's instances.
	systemAdmin := users["admin@system.com"]
	mesAdmin := users["admin@mes.dev"]
	cfesAdmin := users["admin@cfes.dev"]
	caleAdmin := users["admin@cale.dev"]

	grant := func(user *models.User, inst *models.Instance, level string, grantedBy *models.User) error {
		access := &models.UserInstanceAccess{
			UserID:      user.ID,
			InstanceID:  inst.ID,
			AccessLevel: level,
		}
		if grantedBy != nil {
			access.GrantedBy = &grantedBy.ID
		}
		return instRepo.GrantAccess(ctx, access)
	}

	granted := 0
	for _, inst := range allInstances {
		if err := grant(systemAdmin, inst, models.AccessLevelBoth, nil); err != nil {
			return fmt.Errorf("failed to grant system admin access: %w", err)
		}
		granted++
	}

	mesInstances := []*models.Instance{mesDashboard, fireball, toga, grad, graffiti}
	for _, inst := range mesInstances {
		if err := grant(mesAdmin, inst, models.AccessLevelBoth, systemAdmin); err != nil {
			return fmt.Errorf("failed to grant MES admin access: %w", err)
		}
		granted++
	}
	if err := grant(cfesAdmin, natsurvey, models.AccessLevelBoth, systemAdmin); err != nil {
		return fmt.Errorf("failed to grant CFES admin access: %w", err)
	}
	if err := grant(caleAdmin, cale2026, models.AccessLevelBoth, systemAdmin); err != nil {
		return fmt.Errorf("failed to grant CALE admin access: %w", err)
	}
	granted += 2

	eventAdmins := []struct {
		email string
		inst  *models.Instance
		by    *models.User
	}{
		{"admin@fireball.dev", fireball, mesAdmin},
		{"admin@toga.dev", toga, mesAdmin},
		{"admin@grad.dev", grad, mesAdmin},
		{"admin@graffiti.dev", graffiti, mesAdmin},
		{"admin@natsurvey.dev", natsurvey, cfesAdmin},
		{"admin@cale2026.dev", cale2026, caleAdmin},
	}
	for _, ea := range eventAdmins {
		if err := grant(users[ea.email], ea.inst, models.AccessLevelWebAdmin, ea.by); err != nil {
			return fmt.Errorf("failed to grant event admin access for %s: %w", ea.email, err)
		}
		granted++
	}

	for _, inst := range mesInstances {
		if err := grant(users["user@mes.dev"], inst, models.AccessLevelWebUser, mesAdmin); err != nil {
			return fmt.Errorf("failed to grant MES user access: %w", err)
		}
		granted++
	}
	if err := grant(users["user@cfes.dev"], natsurvey, models.AccessLevelWebUser, cfesAdmin); err != nil {
		return fmt.Errorf("failed to grant CFES user access: %w", err)
	}
	if err := grant(users["user@cale.dev"], cale2026, models.AccessLevelWebUser, caleAdmin); err != nil {
		return fmt.Errorf("failed to grant CALE user access: %w", err)
	}
	granted += 2

	slog.Info("seed completed", "organizations", 3, "instances", len(allInstances), "users", len(users), "grants", granted)
	return nil
}
