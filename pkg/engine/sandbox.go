package engine

// Sandbox snapshots the Client's mutable state — observers, cookie jar,
// and default headers — executes block, then restores every snapshotted
// field, returning block's value. Observers registered inside block do not
// persist; cookies learned inside block do not persist. Sandbox is not
// thread-safe with respect to other producers enqueuing requests
// concurrently: callers must not enter Sandbox while other goroutines are
// calling Request/Queue on the same Client.
func (c *Client) Sandbox(block func() any) any {
	subscribers := c.snapshotSubscribers()
	jarSnapshot := c.jar.DeepClone()

	c.mu.Lock()
	headersSnapshot := cloneHeaders(c.cfg.DefaultHeaders)
	c.mu.Unlock()

	defer func() {
		c.restoreSubscribers(subscribers)
		c.restoreJar(jarSnapshot)
		c.mu.Lock()
		c.cfg.DefaultHeaders = headersSnapshot
		c.mu.Unlock()
	}()

	return block()
}

// restoreJar replaces the Client's cookie jar contents with snapshot's.
func (c *Client) restoreJar(snapshot *CookieJar) {
	c.jar.replaceAllFrom(snapshot)
}

func cloneHeaders(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	clone := make(map[string]string, len(h))
	for k, v := range h {
		clone[k] = v
	}
	return clone
}
