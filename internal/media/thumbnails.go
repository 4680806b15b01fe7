package media

import (
	"fmt"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"go.uber.org/zap"
)

// DefaultThumbnail is the delivery transformation for cart and wishlist
// thumbnails.
const DefaultThumbnail = "w_160,h_160,c_pad,b_white,q_auto,f_auto"

// Thumbnails builds Cloudinary delivery URLs for catalog image ids.
type Thumbnails struct {
	cld            *cloudinary.Cloudinary
	transformation string
	logger         *zap.SugaredLogger
}

func NewThumbnails(cloudinaryURL string, logger *zap.SugaredLogger) (*Thumbnails, error) {
	if cloudinaryURL == "" {
		return nil, fmt.Errorf("cloudinary URL is required")
	}
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Thumbnails{cld: cld, transformation: DefaultThumbnail, logger: logger}, nil
}

// ThumbnailURL returns the delivery URL for publicID, or "" when it cannot be
// built. Cloudinary upload URLs are re-delivered with the thumbnail
// transformation; other absolute URLs are only upgraded to https.
func (t *Thumbnails) ThumbnailURL(publicID string) string {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return ""
	}
	if strings.HasPrefix(publicID, "https://") || strings.HasPrefix(publicID, "http://") {
		id := PublicIDFromURL(publicID)
		if id == "" {
			return strings.Replace(publicID, "http://", "https://", 1)
		}
		publicID = id
	}

	img, err := t.cld.Image(publicID)
	if err != nil {
		t.logger.Warnw("cloudinary image", "public_id", publicID, "error", err)
		return ""
	}
	img.Transformation = t.transformation

	url, err := img.String()
	if err != nil {
		t.logger.Warnw("cloudinary url", "public_id", publicID, "error", err)
		return ""
	}
	return url
}

// PublicIDFromURL extracts the public id from a Cloudinary delivery URL such
// as https://res.cloudinary.com/demo/image/upload/v1740815725/products/x.png.
// It returns "" for URLs that are not Cloudinary uploads.
func PublicIDFromURL(raw string) string {
	if !strings.Contains(raw, "res.cloudinary.com/") {
		return ""
	}
	parts := strings.Split(raw, "/")

	upload := -1
	for i, part := range parts {
		if part == "upload" {
			upload = i
			break
		}
	}
	if upload == -1 || upload >= len(parts)-1 {
		return ""
	}

	rest := parts[upload+1:]
	// skip transformations and the version segment
	for len(rest) > 1 && (strings.Contains(rest[0], "_") || isVersion(rest[0])) {
		rest = rest[1:]
	}

	id := strings.Join(rest, "/")
	if dot := strings.LastIndex(id, "."); dot > strings.LastIndex(id, "/") {
		id = id[:dot]
	}
	return id
}

func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
