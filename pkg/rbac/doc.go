// Package rbac maps workspace and project roles to action scopes.
//
// Workspace roles grant global actions; project roles grant per-project
// actions. Admins and owners see every project implicitly, everyone else
// sees the projects they hold a membership on, directly or through a group.
// The highest-ranked role wins when a user holds several on one project.
package rbac
