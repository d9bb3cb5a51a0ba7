/*
Package types defines the desired-state model consumed by the convergence
engine.

A DesiredState is rebuilt from every incoming payload and never persisted.
Cluster-side objects are owned by pacemaker; this package only describes
what the leader should make pacemaker hold:

	ds := types.NewDesiredState()
	ds.Resources["res_vip"] = "ocf:heartbeat:IPaddr2"
	ds.ResourceParams["res_vip"] = "params ip=10.0.0.5"
	ds.Groups["grp_vips"] = "res_vip"
	ds.Clones["cl_haproxy"] = "res_haproxy"

Maps are iterated through SortedNames so that two passes over the same
payload issue the same commands in the same order.
*/
package types
