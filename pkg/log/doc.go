/*
Package log provides structured logging for hacluster using zerolog.

A single global Logger is configured once per process with Init and every
package derives a component logger from it:

	log.Init(log.Config{Level: log.DebugLevel})
	logger := log.WithComponent("reconciler")
	logger.Info().Str("resource", "res_vip").Msg("creating primitive")

The engine runs as a short-lived hook process, so log output defaults to
stderr and stdout stays free for command results such as the exit status
line printed by the CLI.

Resource and pass scoped fields are added with WithResource and WithPass so
that every line emitted during one convergence pass can be correlated:

	{"level":"info","component":"reconciler","pass_id":"4c1f...","resource":"res_vip","message":"committed"}
*/
package log
