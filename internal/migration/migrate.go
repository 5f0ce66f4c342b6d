package migration

import (
	"github.com/KDim67/boostflow-backend/internal/domain"
	"gorm.io/gorm"
)

// Models returns every table managed by this service
func Models() []interface{} {
	return []interface{}{
		&domain.Channel{},
		&domain.Membership{},
		&domain.Message{},
		&domain.Notification{},
		&domain.UserProfile{},
		&domain.OrganizationMember{},
	}
}

// Run executes AutoMigrate for all communication tables
func Run(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

type tabler interface {
	TableName() string
}

// TableNames lists the tables Run creates or alters
func TableNames() []string {
	models := Models()
	names := make([]string, 0, len(models))
	for _, m := range models {
		if t, ok := m.(tabler); ok {
			names = append(names, t.TableName())
		}
	}
	return names
}
