package mcpserver

// FormatContract describes the KeyNote note file format for LLM consumers
// reading notes through this server.
const FormatContract = `# KeyNote File Format

Library files end in .knt (plain or encrypted KeyNote), .kne (encrypted) or
.dnt (DartNotes). All tools take library-relative paths with forward slashes.

## Plain KeyNote (GFKNT)

The file is line oriented; lines end with LF or CRLF.

` + "```" + `
GFKNT 2.0                     tag line: format tag and version
#D Description                header fields start with '#'
#C 14-10-2026 09:30:00        created, dd-mm-yyyy hh:mm:ss
#$ 0                          active note index
#^ 0000                       flags: read-only, icons, richedit3, no backup
#B 0,3,120,name               bookmark slot, note id, position, name
#!RTF!#                       following notes are flat
%-                            starts a note
TT=Inbox                      note properties: TT name, ID id, LV level,
ID=3                          DC created, FL flags
%+                            starts a titled section
TT=Today
%:                            content follows
plain text or {\rtf1 ...}     RTF payloads may span lines and contain markers
#!TRE!#                       following notes are tree notes
%-
TT=Projects
#!BeginNode!#                 opens a node; ND name, LV level
ND=Garden
%:
node content
#!EndNode!#
%%                            end of file
` + "```" + `

## Rules

1. A note is identified by its file path and its numeric id.
2. Tree notes have nodes instead of sections; get_outline returns the
   hierarchy, read_note returns every node in walk order with its level.
3. Virtual nodes take their content from elsewhere: mirror nodes from
   another node by name, linked nodes from a file next to the note file.
4. read_note returns a plain text rendering of RTF content alongside the
   raw stored text.
5. Encrypted files (GFKNE) open only when the server has a passphrase; the
   catalog lists them with format "encrypted" and no notes otherwise.
6. DartNotes files hold flat notes only, one section each. They carry no
   bookmark table, so bookmark writes to them are refused as read-only.

## Importing

import_note_file accepts an http(s) URL or a base64 data URI. The content
must be a KeyNote or DartNotes file; it is stored under the given folder
(default imports/) with the extension of its detected format.
`
