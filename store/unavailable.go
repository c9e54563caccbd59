package store

import (
	"context"

	"secretbox/models"
)

// Unavailable stands in for a backend that could not be opened at startup.
type Unavailable struct {
	Err error
}

func (u Unavailable) Insert(context.Context, models.Message) error { return u.Err }

func (u Unavailable) Recent(context.Context, int) ([]models.Message, error) { return nil, u.Err }

func (u Unavailable) Ping(context.Context) error { return u.Err }

func (u Unavailable) Close(context.Context) error { return nil }
