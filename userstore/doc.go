// Package userstore is the gorm/postgres implementation of the engine's
// UserStore interface. It owns the users table, including the nullable MFA
// secret and the text[] column of remaining single-use backup codes.
package userstore
