package valkey

// putScript writes a whole item when the precondition holds, records it in the
// all-items set and moves it between index sets in the same atomic step.
//
// KEYS[1] item key, KEYS[2] index key prefix, KEYS[3] all-items set.
// ARGV[1] mode (any|absent|version), ARGV[2] expected version,
// ARGV[3] indexed attribute name, ARGV[4] new indexed value, ARGV[5..] field/value pairs.
// Returns 1 on write, 0 on precondition failure.
const putScript = `
local cur = redis.call('HGET', KEYS[1], '__version')
if ARGV[1] == 'absent' and cur then
  return 0
end
if ARGV[1] == 'version' and (not cur or cur ~= ARGV[2]) then
  return 0
end
local old = redis.call('HGET', KEYS[1], ARGV[3])
if old and old ~= ARGV[4] then
  redis.call('SREM', KEYS[2] .. old, KEYS[1])
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], unpack(ARGV, 5))
redis.call('SADD', KEYS[3], KEYS[1])
if ARGV[4] ~= '' then
  redis.call('SADD', KEYS[2] .. ARGV[4], KEYS[1])
end
return 1
`

// deleteScript removes an item with its index and all-items membership.
//
// KEYS[1] item key, KEYS[2] index key prefix, KEYS[3] all-items set. ARGV[1] indexed attribute name.
// Returns 1 when deleted, 0 when the key was absent.
const deleteScript = `
if redis.call('EXISTS', KEYS[1]) == 0 then
  redis.call('SREM', KEYS[3], KEYS[1])
  return 0
end
local old = redis.call('HGET', KEYS[1], ARGV[1])
if old then
  redis.call('SREM', KEYS[2] .. old, KEYS[1])
end
redis.call('DEL', KEYS[1])
redis.call('SREM', KEYS[3], KEYS[1])
return 1
`
