// Package lampclient talks to a DiscoJar lamp over HTTP.
//
// The lamp serves its control page on GET / and accepts a 20-byte
// configuration packet on POST /. Failed requests are retried with
// exponential backoff when the error is transient; errors are returned as
// *DeviceError so callers can print short messages and troubleshooting hints.
package lampclient
