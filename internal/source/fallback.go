package source

// FallbackCSV is served when no candidate location is reachable, so a
// leaderboard always has something to show.
const FallbackCSV = `Team,#sub1,#sub2,#sub3
NULL,85.1,,
27,83.8,,
ACVcoders,83.6,,
camgbi,83.5,,
AITrio,81.4,81.4,
NoCap,77.6,,
Xtreme,75.2,,
NaN,74.6,,
TP BANK,72.7,,
Kanami,71.7,,
`
