package clips

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// clipExt is appended to the identifier to form the on-disk file name.
	clipExt = ".mp4"

	// stagingExt marks a clip that is still being received or verified.
	stagingExt = ".part"
)

// UploadResult is returned for a committed upload.
type UploadResult struct {
	BytesReceived int64  `json:"uploaded"`
	Digest        string `json:"hex"`
}

// ValidUploadID reports whether id can safely name a file directly under the
// storage directory: non-empty, no parent-directory segments, no separators.
func ValidUploadID(id string) bool {
	return id != "" &&
		!strings.Contains(id, "..") &&
		!strings.ContainsAny(id, `/\`) &&
		!strings.ContainsRune(id, 0)
}

// ValidClipID reports whether id is a canonical UUID v4, the format clip
// identifiers are issued in.
func ValidClipID(id string) bool {
	u, err := uuid.Parse(id)
	if err != nil || len(id) != 36 {
		return false
	}
	return u.Version() == 4 && u.Variant() == uuid.RFC4122
}
