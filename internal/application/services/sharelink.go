package services

import (
	"fmt"
	"net/url"
	"time"

	"file-sharing-api/internal/application/ports"
	domain "file-sharing-api/internal/domain/file"
	"file-sharing-api/internal/infrastructure/urlsign"
)

// ShareLinkTTL is the single issuance policy. There is no revocation:
// deleting the file mid-window makes dereference fail with NotFound,
// not AccessDenied.
const ShareLinkTTL = 3600 * time.Second

// LinkIssuer wraps the signer with the fixed TTL and renders the
// public dereference URL.
type LinkIssuer struct {
	signer        ports.URLSigner
	publicBaseURL string
	sharedRoute   string
}

func NewLinkIssuer(signer ports.URLSigner, publicBaseURL, sharedRoute string) *LinkIssuer {
	return &LinkIssuer{
		signer:        signer,
		publicBaseURL: publicBaseURL,
		sharedRoute:   sharedRoute,
	}
}

func (li *LinkIssuer) Issue(storagePath string) (*domain.SharedLink, error) {
	token, err := li.signer.SignPath(storagePath, ShareLinkTTL)
	if err != nil {
		return nil, fmt.Errorf("sign share link for %q: %w", storagePath, err)
	}

	return &domain.SharedLink{
		URL: fmt.Sprintf(
			"%s%s?token=%s",
			li.publicBaseURL,
			li.sharedRoute,
			url.QueryEscape(token),
		),
		TTLSeconds: int64(ShareLinkTTL / time.Second),
	}, nil
}

func (li *LinkIssuer) Verify(token string) (*urlsign.Claims, error) {
	return li.signer.VerifyToken(token)
}
