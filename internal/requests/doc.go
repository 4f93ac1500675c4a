// Package requests implements the book request workflow: policy-gated
// submission, admin approval and denial, and fulfillment when the linked
// download completes.
package requests
