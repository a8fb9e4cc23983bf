package domain

import (
	"time"
)

// CREATE TABLE public.categories (
//     id          BIGSERIAL PRIMARY KEY,
//     name        TEXT NOT NULL UNIQUE,
//     created_at  TIMESTAMPTZ DEFAULT NOW()
// );

type Category struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
}

func (Category) TableName() string {
	return "categories"
}
