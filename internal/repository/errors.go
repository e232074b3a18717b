package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrNoRowsAffected is returned by conditional updates whose guard matched nothing.
	ErrNoRowsAffected = errors.New("no rows affected")
)

// translate maps GORM errors onto repository sentinels. The DB must be opened
// with TranslateError so unique violations arrive as gorm.ErrDuplicatedKey.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return err
}
