// Package platform detects the host platform and loads the matching
// platform and compiler macro tables into a [macro.Store].
//
// Exactly one platform table is active per [Loader]. The table is chosen by
// the "creator.platform" override if it is defined, else by the "Platform"
// variable, which must be one of [Supported].
package platform
