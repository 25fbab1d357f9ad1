package entity

import (
	"errors"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoGuildContext is returned by member commands when the member was
// built without a guild.
var ErrNoGuildContext = errors.New("fluxer: member has no guild context")

// CDNURL hosts user content such as banners.
const CDNURL = "https://fluxerusercontent.com"
