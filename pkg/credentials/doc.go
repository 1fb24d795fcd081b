// Package credentials lists the credentials detected by the scan-list
// deployment of the Rigour API (GET /credentials). Each Credential names the
// host address and port it was found on together with the detector that
// matched it.
package credentials
