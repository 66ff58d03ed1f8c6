package models

import "gorm.io/gorm"

// All lists every persisted model in foreign-key order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Article{},
		&Annotation{},
		&DifficultPassage{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
