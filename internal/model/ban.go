package model

// ReasonLogout marks a revocation created by a voluntary logout.  Entries
// with this reason are eligible for removal by the expiry sweeper once the
// underlying token has expired.  Any other reason is an administrative ban
// and stays until an explicit unban.
const ReasonLogout = "logout"

// BanRecord models a row in the `ban_list` table.  A record revokes the
// named access token: requests presenting it fail authorization even though
// the token's signature and expiry are still valid.
//
// Fields:
//  ID          – primary key identifier.
//  AccessToken – the revoked access token, stored verbatim.
//  Reason      – "logout" or an administrative cause.
type BanRecord struct {
    ID          uint64 // ban_list.id
    AccessToken string // ban_list.access_token
    Reason      string // ban_list.reason
}
