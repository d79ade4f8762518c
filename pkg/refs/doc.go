// Package refs resolves ${...} placeholders inside secret values.
//
// A placeholder names a secret in dotted form: KEY (same config),
// CONFIG.KEY (sibling config in the same project) or PROJECT.CONFIG.KEY.
// Resolution is permissive (broken references become empty strings) while
// validation is strict and reports every problem it finds. Both walks share
// the same cycle and depth guards.
package refs
