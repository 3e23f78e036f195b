package api

import "time"

// Test hook to shrink the polling fallback cadence so degraded-mode paths
// run in milliseconds instead of the wall-clock interval.

func (c *Client) SetPollInterval(d time.Duration) { c.pollInterval = d }
