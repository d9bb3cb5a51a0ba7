/*
Package reconciler drives a cluster toward the desired state published by
the principal unit.

A pass is a single synchronous run of Converge. It consults the live
configuration through the crm shell before every change, so running it
again with the same input issues no configuration commands. The pass
depends only on its arguments: the desired state, the live cluster, and a
PassContext carrying leadership, the advertised remote peers and the unit
configuration.

# Phases

	preflight     every unit   MAAS configuration, DNS addresses, membership barrier
	global        leader       no-quorum-policy, monitor host, maintenance mode
	delete        leader       stop or clean up, kill legacy daemon, delete
	services      every unit   disable init services now run by the cluster
	primitives    leader       create, or update when the definition changed
	grouping      leader       groups, master/slave sets, clones
	constraints   leader       orders, colocations, locations
	remote        leader       remote nodes, fencing, symmetry, placement
	cleanup       leader       re-evaluate stopped resources, clones, groups

Only the leader changes the cluster configuration. Other units disable
their local services and wait for membership.

# Failure

The first fatal error ends the pass. Converge returns it as a
*BlockedError whose Message is the status shown to the operator, for
example "Cannot update pcmkr resource: res_ks_vip". Missing MAAS settings
surface before any command has been issued.

# Update detection

The crm shell cannot tell whether a primitive's definition matches the
desired one without a full diff, so each applied definition is
fingerprinted with hashstructure and the fingerprint is written to the
primitive's hacluster-fingerprint meta attribute. An existing primitive is
only loaded again when the attribute differs from the desired fingerprint.
Leadership moves between units, so the attribute on the live primitive is
the reference; the copy in the unit's state database only tells this unit
whether another one rewrote the primitive since.
*/
package reconciler
