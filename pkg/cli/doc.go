// Package cli provides the fleet-admin command-line interface for operators.
//
// # Commands
//
// create-user: Create a user account. The first super admin of a fresh
// deployment is bootstrapped this way since registration over HTTP cannot
// grant super_admin.
//
//	fleet-admin create-user \
//		--email root@example.com \
//		--password changeme \
//		--role super_admin
//
// list-users: List accounts, optionally scoped to one company
//
//	fleet-admin list-users --company 1
//
// deactivate: Disable an account so its next login is rejected
//
//	fleet-admin deactivate --id 42
//
// set-setting: Write a platform setting row directly
//
//	fleet-admin set-setting \
//		--company 1 \
//		--category notifications \
//		--key emailEnabled \
//		--value true \
//		--type boolean
//
// All commands read the database URL from --db or FLEET_POSTGRES_URL.
package cli
