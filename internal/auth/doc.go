// SafeFlow - Crowd Monitoring and Tripwire Occupancy Counting
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/safeflow

/*
Package auth authenticates API callers and authorizes their requests.

Two modes are supported:

  - none: every request is treated as coming from an admin. Intended for
    local development; refused by config validation in production.
  - jwt: callers exchange credentials for an HS256 token at
    POST /api/v1/auth/token and send it as "Authorization: Bearer <token>".

Credentials are either the admin account from configuration or a stored
user account created through /api/v1/users. Stored accounts carry a role
and an active flag; inactive accounts cannot log in. Tokens already issued
stay valid until they expire.

Authorization is role based and enforced with Casbin. The policy is compiled
in:

	viewer  may GET anything under /api/v1 and ask for a diversion
	admin   inherits viewer and may also POST, PUT, PATCH and DELETE

Routes that must hide data from viewers, such as the user list, add
RequireRole on top of the policy.

Passwords are checked against bcrypt hashes. A plain admin password from
configuration is hashed once at startup. A login for an unknown user still
runs one bcrypt comparison so response time does not reveal which names
exist.
*/
package auth
