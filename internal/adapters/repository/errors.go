package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("video not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrEmptyVideoID = errors.New("empty video id")
	ErrArchive      = errors.New("archive failure")
)
