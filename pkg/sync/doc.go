/*
Package sync composes one sync run: resolve the target device, compute the
candidate file set, push it, notify the device's media index, and commit the
sync timestamp.

A run moves through a fixed sequence of stages. Device resolution failures
abort the run before anything touches the device. Once transfers start,
per-file failures and per-batch notification failures are absorbed and
aggregated rather than aborting sibling work. The last-sync timestamp is
committed only when every file in the batch succeeded, so anything that
failed (or wasn't attempted) remains eligible on the next incremental run.

Re-running a sync is always safe: remote directory creation is idempotent,
pushes overwrite, and an uncommitted timestamp just means some files get
pushed again.
*/
package sync
