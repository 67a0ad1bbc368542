package nlu

// Instructions sent to the language-understanding backend. Every one demands
// strict JSON; the decode layer still treats the reply as untrusted.

const multiOpInstruction = `You are an information extraction agent for an inventory app.
Return a STRICT JSON array (no commentary, no code fences). Each element must be an object with keys:
intent, object_name, quantity, to_box, from_box, box_name (ONLY for ADD_BOX/REMOVE_BOX), remove_all, everything.
- intent is one of [ADD, REMOVE, FIND, ADD_BOX, REMOVE_BOX, CLEAR_BOX, MOVE]
- object_name: string or null
- quantity: integer or null (default 1 for ADD/REMOVE if missing)
- to_box: destination box name as a string or null. If the phrasing uses a letter (e.g., 'box B'), map spoken letters to the uppercase letter; otherwise keep the full name (e.g., 'escape room 1').
- from_box: source box name as a string or null (MOVE only)
- box_name: string or null ONLY when the user is naming a box for ADD_BOX or REMOVE_BOX
- remove_all: boolean or null (true when removing all quantity of a named item)
- everything: boolean or null. If the user says 'everything' or 'all items', set everything=true to indicate the operation targets all items within the specified scope (e.g., a box).
Rules:
- Treat declarative and imperative forms as the same intent.
- In 'add A and B and C into box X', set to_box='X' (or the full name) for A, B, and C.
- If later '... and D and E into box Y', apply 'Y' only to D and E.
- Items without a stated destination must have to_box=null.
- Map spoken letters to their uppercase letter (bee->B, see/cee/sea->C).
- For object_name, return the core singular item name: strip phrases like 'sticks of', 'pieces of', and convert common plurals to singular.
- If phrasing is 'remove all <item>' or 'remove all of the <item>', set remove_all=true for that REMOVE op and quantity=null.
- If phrasing is 'remove everything from box A and box B', produce SEPARATE ops per box with everything=true; do not combine boxes into one op.
- For FIND with 'everything' and a box, interpret as listing all items in that box (everything=true).
Respond with the JSON array only.`

const singleOpInstruction = `Extract the inventory intent from the user's text as strict JSON with keys:
intent (one of ADD, REMOVE, FIND, ADD_BOX, REMOVE_BOX, CLEAR_BOX, MOVE),
object_name (optional string), quantity (optional integer), box_name (optional string),
remove_all (optional boolean), to_box (optional string), from_box (optional string).
Rules:
- If the user is naming a box (ADD_BOX), box_name must be the intended name: usually a single letter.
- If they say 'box B' or 'call it C', set box_name='B' or 'C' (the letter), not words like 'bee'/'see'.
- Ignore filler words like 'and', 'then', 'please' as names.
- For REMOVE ALL, set remove_all=true.
- For object_name, return the core singular item name: strip phrases like 'sticks of', 'pieces of', 'bottles of', and convert common plurals to singular (e.g., 'coat hangers' -> 'coat hanger', 'batteries' -> 'battery').
- MOVE: item and to_box are required; from_box is optional and must be omitted when not stated; never invent boxes.
Respond with the JSON object only.`

const alignInstruction = `You are an information extraction agent for an inventory voice UI.
Extract ONLY the requested field from the user's answer, plus remove_all when implied.
Return STRICT JSON with keys: remove_all (boolean), quantity (integer|null), box_name (string|null), object_name (string|null).
Rules:
- If the answer indicates all items (e.g., 'all', 'all of them', 'everything'), set remove_all=true and the other fields null.
- If asking for quantity, return quantity as an integer when present; map number words (one..twenty) to integers.
- If asking for a box, map spoken letters to single letters (bee->b, see->c, etc.).
- If asking for object_name, return a concise item name without articles.
- Do NOT invent values. If a value is not present, set the field to null.
- Do not include any commentary.`
