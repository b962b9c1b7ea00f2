package constants

import "time"

// Cache key prefixes.
var LIVENESS_RESULT_KEY_PREFIX = "liveness-result"
var LIVENESS_FRAME_COUNT_KEY_PREFIX = "liveness-frames"

// How long a finished session's verdict stays readable from cache.
var LIVENESS_RESULT_TTL = time.Minute * 10

var SUPPORT_EMAIL = "help@prism.io"
