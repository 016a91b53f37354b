package migration

import (
	"errors"

	activitylogdomain "github.com/alprail/membership/internal/activitylog/domain"
	invoicedomain "github.com/alprail/membership/internal/invoice/domain"
	lifecycledomain "github.com/alprail/membership/internal/lifecycle/domain"
	memberdomain "github.com/alprail/membership/internal/member/domain"
	organizationdomain "github.com/alprail/membership/internal/organization/domain"
	paymentdomain "github.com/alprail/membership/internal/payment/domain"
	plandomain "github.com/alprail/membership/internal/plan/domain"
	settingsdomain "github.com/alprail/membership/internal/settings/domain"
	subscriptiondomain "github.com/alprail/membership/internal/subscription/domain"
	"gorm.io/gorm"
)

// RunMigrations creates or updates the schema on startup so the service
// is usable out of the box for local and self-hosted environments.
func RunMigrations(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	return db.AutoMigrate(
		&organizationdomain.Organization{},
		&memberdomain.Member{},
		&plandomain.Plan{},
		&subscriptiondomain.Subscription{},
		&invoicedomain.Invoice{},
		&paymentdomain.Payment{},
		&activitylogdomain.Entry{},
		&settingsdomain.Setting{},
		&lifecycledomain.JobLock{},
	)
}
