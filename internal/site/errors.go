package site

import (
	"fmt"

	"github.com/starford/vellum/internal/apperr"
)

var errNotLoaded = fmt.Errorf("site: not loaded: %w", apperr.ErrNotReady)
