// Package preflight provides readiness checks for the external tools and
// filesystem paths an export depends on.
//
// These checks run in two contexts:
//   - The CLI "reelforge preflight" command reports each check so problems
//     surface before a long encode is attempted.
//   - The export command runs them first and refuses to start when a
//     required check fails, to avoid wasting minutes on a doomed run.
package preflight
