package service

import "time"

// timeNow is indirected so tests can freeze "now" when exercising
// quiet-hours boundary behavior through the router.
var timeNow = time.Now
