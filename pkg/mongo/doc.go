// Package mongo connects chatd to its document store.
//
// It wraps the official go.mongodb.org/mongo-driver/v2 client with a
// retrying connector, stable server API v1 options, and a health-check
// helper. Configuration comes from environment variables via the Config
// struct.
package mongo
