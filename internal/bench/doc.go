// Package bench runs the poolbench scenarios against a jobpool.Pool: batch
// execution, parallel speed-up, busy reporting, a multi-producer stress run and
// shutdown discarding queued work.
//
// Configuration comes from a YAML file, then from POOLBENCH_* environment
// variables (optionally loaded from .env files).
package bench
