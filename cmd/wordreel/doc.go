// Command wordreel is the CLI client for the wordreel daemon. It submits
// text or documents for video generation, follows job progress, and fetches
// the finished files over the daemon's HTTP API.
package main
