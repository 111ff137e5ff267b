package storagemock

import "github.com/slok/tasktrack/internal/storage"

var _ storage.Repository = &MockRepository{}

//go:generate mockery --case underscore --output . --outpkg storagemock --name Repository --srcpkg github.com/slok/tasktrack/internal/storage --structname MockRepository --filename repository.go
