/*
Package dns handles the MAAS DNS resources of a cluster.

A DNS resource (an ocf:maas:dns primitive whose name ends in _hostname)
keeps a MAAS DNS record pointing at the unit currently running it. Older
resource agents took the address from the ip_address resource parameter;
newer ones read it from /etc/maas_dns/<resource>. The Gate bridges the two:

  - NeedsMigration probes the installed agent for the old parameter and
    consults the state store, so a completed migration is never repeated.
  - Migrate writes one address file per DNS resource found in the desired
    states of all principal units, then records completion.
  - WriteAddress is also called on every convergence pass for the DNS
    resources of the current payload. Files already holding the address are
    left untouched.

Addresses are extracted from the resource parameter string with shell-style
tokenization, so quoted and unquoted values are treated alike.

RecordChecker is the matching probe for "hacluster status": it asks the
system nameservers whether each DNS resource's fqdn resolves to the stored
address.
*/
package dns
