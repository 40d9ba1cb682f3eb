package models

import "errors"

// Custom errors
var (
	ErrNoDistance       = errors.New("no entrant has a resolvable distance")
	ErrDuplicateBox     = errors.New("duplicate box number within race")
	ErrRaceKeyCollision = errors.New("race key collides across documents")
	ErrNotFound         = errors.New("record not found")
)
