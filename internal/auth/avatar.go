// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 DevConnector Contributors

package auth

import (
	"crypto/md5" //nolint:gosec // gravatar keys avatars by the md5 of the email
	"encoding/hex"
	"net/url"
)

const gravatarBase = "https://www.gravatar.com/avatar/"

// Avatar parameters: 200px, PG rating, "mystery man" fallback image.
var gravatarParams = url.Values{
	"s": {"200"},
	"r": {"pg"},
	"d": {"mm"},
}

// AvatarURL returns the Gravatar URL for an email address.
// The address is normalized first, so equal addresses always map to the same URL.
func AvatarURL(email string) string {
	sum := md5.Sum([]byte(NormalizeEmail(email))) //nolint:gosec // not used for security
	return gravatarBase + hex.EncodeToString(sum[:]) + "?" + gravatarParams.Encode()
}
