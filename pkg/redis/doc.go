// Package redis opens go-redis clients with retry and exposes health and
// shutdown hooks. Redis is optional for the service: when REDIS_URL is empty the
// directory cache stays in process memory.
package redis
