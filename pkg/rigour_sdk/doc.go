// Package rigour_sdk bootstraps the Rigour API clients from the environment.
// RIGOUR_API_URL (or PUBLIC_API_URL) names the API origin,
// RIGOUR_RUNTIME_MODE selects "http", "mock" or "auto", and
// RIGOUR_DEPLOYMENT picks the schema the service speaks: "banners" for the
// host/banner API served by package hosts, "scans" for the scan-list API
// served by packages scans and credentials. In mock mode the clients are
// backed by in-memory stores, optionally seeded from RIGOUR_MOCK_SEED, that
// answer with the same shapes and errors as the HTTP service.
package rigour_sdk
