// Package users manages the account records that drive policy resolution:
// admins bypass request gating, and the can-download flag decides whether a
// member may enqueue downloads directly.
package users
