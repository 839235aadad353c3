// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the build lifecycle: locating the project
// root, loading build.hcl, the bootstrap phase, the requested build, and the
// optional watch loop. It is decoupled from the command line entrypoint.
package app
