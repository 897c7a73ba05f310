package storage

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewStoredName builds "<unix-millis>-<uuid>.<ext>". The timestamp keeps
// names roughly ordered by upload time, the random UUID keeps them unique.
func NewStoredName(now time.Time, ext string) string {
	name := strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return name
}
