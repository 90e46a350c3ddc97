package ports

import (
	"time"

	"file-sharing-api/internal/infrastructure/urlsign"
)

type URLSigner interface {
	SignPath(storagePath string, ttl time.Duration) (string, error)
	VerifyToken(tokenStr string) (*urlsign.Claims, error)
}
