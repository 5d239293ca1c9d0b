// Package reload restarts a process when the source files it runs from
// change on disk.
//
// The package splits the work between two roles connected by a reserved
// exit code. The launcher (the process the user started) spawns a copy of
// its own command line with the RESPAWN_RUN_MAIN environment variable set
// and waits. The supervised child runs the real workload plus a change
// detector; when the detector sees a relevant change it exits with code 5.
// The launcher respawns the child while it keeps exiting with that code
// and passes any other exit code through unchanged.
//
// Two detector strategies are provided. The stat strategy polls the
// modification time of every watched file once per tick and needs nothing
// from the operating system beyond stat. The watchdog strategy registers
// recursive directory watches through OS filesystem notifications and only
// uses its tick to resize the watched directory set. The auto strategy
// picks watchdog when notifications are available and falls back to stat.
//
// Watched paths come from two caller-supplied snapshot functions, queried
// fresh on every tick: Sources lists the files currently in use and
// SearchDirs lists the directories code may be loaded from. Extra files
// named explicitly are always watched. Compiled-artifact paths are mapped
// back to the sources that produced them before comparison, so a stale
// artifact timestamp never masks a source edit.
package reload
