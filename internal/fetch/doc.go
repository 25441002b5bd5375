// Package fetch retrieves submitted files from Telegram. The Bot API is the
// primary transport; files over its download ceiling are re-fetched through
// an MTProto fallback that authenticates with separate api_id/api_hash
// credentials.
package fetch
